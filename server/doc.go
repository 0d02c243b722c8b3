// Package server exposes the first-aid assistant over HTTP.
//
// Routes:
//
//	GET  /, /health     service and corpus status
//	POST /answer        corpus retrieval
//	POST /chat          configured answer provider, personalized for
//	                    authenticated callers
//	POST /dialog        keyword conversation step
//	POST /tts           speech synthesis
//	GET  /static/...    synthesized audio
//	POST /auth/signup, /auth/login
//	GET, PUT /medical   the caller's medical profile
//
// Every response is JSON. Errors carry {"ok": false, "error": "..."}.
package server
