// Package httpapi implements the remote auth and ticket verification endpoints of the
// check-in service over HTTP/JSON.
//
// Client satisfies goCheckin.AuthClient and goCheckin.VerifyClient:
//
//	POST {base}/auth/login        {"email","password"} -> {"success","user","token","message"}
//	GET  {base}/scan-qr/{ticket}  Authorization: Bearer <token> -> {"success","message"}
//
// 4xx responses are explicit rejections; network errors, timeouts, 5xx and malformed
// bodies are transport failures returned as errors.
package httpapi
