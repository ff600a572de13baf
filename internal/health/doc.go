// Package health provides the HTTP health service.
//
// Routes:
//
//	GET /            {"status":"ok"}
//	GET /api/health  status, uptime and sandbox writability
//
// Unknown routes answer with a JSON 404 body {"message": "..."}.
//
// Serve runs the server until its context is cancelled and then shuts it
// down gracefully:
//
//	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//	err := health.ListenAndServe(ctx, cfg.Port, health.NewHandler(root))
package health
