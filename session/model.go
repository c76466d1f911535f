package session

// Record is the persisted representation of a signed-in session.
//
// Identity holds the server's user record as raw JSON; Credential is the opaque
// token passed to the verification endpoint.
type Record struct {
	Email      string
	Identity   []byte
	Credential string
	SavedAt    int64
}
