package dr

import "crypto/subtle"

// Credentials carries whatever the entry point extracted from the caller:
// a verified identity (email), a shared-secret key, or neither.
type Credentials struct {
	// Email is the caller's identity as asserted by the auth layer.
	Email string
	// Verified marks whether the identity was actually verified, as
	// opposed to merely claimed. Unverified identities never pass.
	Verified bool
	// Key is the shared secret presented by header or query parameter.
	Key string
}

// AuthorizationPolicy gates every privileged operation. It runs before any
// side-effecting work and a failure never proceeds. Authorize returns the
// acting identity to record in manifests and the audit log.
type AuthorizationPolicy interface {
	Authorize(cred Credentials) (actor string, err error)
}

// AllowListPolicy admits callers with a verified email that appears on the
// configured allow-list. An empty allow-list admits any verified caller.
type AllowListPolicy struct {
	allowed map[string]struct{}
}

// NewAllowListPolicy builds a policy from the configured emails.
func NewAllowListPolicy(emails []string) *AllowListPolicy {
	p := &AllowListPolicy{allowed: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		p.allowed[e] = struct{}{}
	}
	return p
}

func (p *AllowListPolicy) Authorize(cred Credentials) (string, error) {
	if cred.Email == "" || !cred.Verified {
		return "", Errorf(KindUnauthenticated, "sign in required")
	}
	if len(p.allowed) > 0 {
		if _, ok := p.allowed[cred.Email]; !ok {
			return "", Errorf(KindPermissionDenied, "%s is not authorized", cred.Email)
		}
	}
	return cred.Email, nil
}

// SharedSecretPolicy admits callers presenting a key exactly equal to the
// configured secret. Comparison is constant time.
type SharedSecretPolicy struct {
	secret string
}

// NewSharedSecretPolicy builds a policy around the configured secret.
// An empty secret admits nobody.
func NewSharedSecretPolicy(secret string) *SharedSecretPolicy {
	return &SharedSecretPolicy{secret: secret}
}

func (p *SharedSecretPolicy) Authorize(cred Credentials) (string, error) {
	if p.secret == "" || subtle.ConstantTimeCompare([]byte(cred.Key), []byte(p.secret)) != 1 {
		return "", Errorf(KindUnauthenticated, "missing or invalid key")
	}
	return "shared-secret", nil
}

var (
	_ AuthorizationPolicy = (*AllowListPolicy)(nil)
	_ AuthorizationPolicy = (*SharedSecretPolicy)(nil)
)
