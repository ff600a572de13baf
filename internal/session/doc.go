// Package session runs an operator session.
//
// A Session owns the chat conversation and exposes the operations the
// command line drives:
//
//	WriteArtifact(ctx, path, prompt)  // generate, test and self-heal a file
//	Chat(ctx, prompt)                 // ask a question with the session history
//	RunCommand(ctx, line)             // policy check, approval, gateway run
//	ReadArtifact(path)                // bounded read of a sandbox file
//	List(path)                        // sandbox directory listing
//	Reset(ctx)                        // wipe the sandbox after confirmation
//	AuditTail(n)                      // last n audit lines
//
// Run reads interactive commands (":help", ":ls", "write <file> :: <prompt>",
// ...) line by line until ":exit" or end of input.
package session
