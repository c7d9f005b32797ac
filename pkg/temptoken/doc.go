// Package temptoken provides compact, signed continuation tokens for
// multi-step flows that must stay stateless between HTTP round trips.
//
// A token carries the flow session id, the step the client is allowed to
// submit next, the session's optimistic-concurrency version, and an absolute
// expiry. Integrity is guaranteed by an HMAC-SHA256 signature truncated to
// 16 bytes; verification is a pure function over the token bytes and the
// server-held secret, it performs no I/O.
//
// Token format: base64url(payload).base64url(signature)
//
// # Usage
//
//	codec, err := temptoken.New("my-very-strong-secret")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tok, err := codec.Mint("sess-42", "college_selected", 1, time.Now().Add(30*time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	claims, err := codec.Parse(tok)
//	if err != nil {
//	    // temptoken.ErrMalformedToken or temptoken.ErrExpiredToken
//	}
//
// Parse returns ErrMalformedToken for any structural or signature failure so
// a tampered token never degrades into a more specific, information-leaking
// error. ErrExpiredToken is only returned once the signature has verified.
package temptoken
