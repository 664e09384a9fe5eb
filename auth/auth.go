// Package auth declares the broker's authentication and authorization
// seam. Authentication backends themselves are external collaborators —
// this package specifies only the interface and two trivial stand-ins.
package auth

// Controller authenticates CONNECT credentials and authorizes topic
// access for PUBLISH and SUBSCRIBE.
type Controller interface {
	// Auth returns true if user/pass are accepted on CONNECT. An empty
	// user is passed through when the CONNECT carried no username.
	Auth(user, pass string) bool

	// ACL returns true if user may access topic; write distinguishes a
	// PUBLISH (true) from a SUBSCRIBE (false).
	ACL(user, topic string, write bool) bool
}

// Allow accepts every credential and grants every access, matching the
// teacher's development-mode default.
type Allow struct{}

func (Allow) Auth(user, pass string) bool         { return true }
func (Allow) ACL(user, topic string, write bool) bool { return true }

// Disallow rejects every credential and access check.
type Disallow struct{}

func (Disallow) Auth(user, pass string) bool         { return false }
func (Disallow) ACL(user, topic string, write bool) bool { return false }
