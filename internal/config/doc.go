// Package config provides configuration types and loading for forage-agent.
//
// # Sources
//
// Configuration is read once at startup, lowest precedence first:
//
//   - Built-in defaults (Default)
//   - A TOML file: --config, or forage-agent.toml in the working directory
//   - A dotenv file (.env), which never overrides variables already set
//   - The process environment
//
// # Environment Variables
//
//	SANDBOX_DIR            sandbox root (default ./sandbox)
//	AUDIT_LOG              audit log path (default ./audit.log)
//	AUTO_APPROVE           "true" skips confirmation prompts
//	MAX_SELF_HEAL_RETRIES  heal attempts after the first write (default 3)
//	ALLOW_CMDS             comma separated allow list
//	DENY_CMDS              extra denials on top of the fixed deny list
//	GROQ_API_KEY           generator credential
//	MODEL                  generator model identifier
//	GENERATOR_URL          OpenAI-compatible API base URL
//	PORT                   health service listen port
//
// # Command Lists
//
// Allow and deny entries are parsed once into bare executable names.
// A name that is both allowed and denied is rejected by Validate; the fixed
// deny list (rm, sudo, curl, wget, shutdown, reboot) always applies.
package config
