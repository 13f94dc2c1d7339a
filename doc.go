// Package auth implements the authentication and token-lifecycle core
// of a multi-tenant chat backend: credential verification, short-lived
// access tokens, refresh tokens, rotating CSRF tokens, email
// verification and password reset tokens, and the role/permission
// resolution that feeds token claims.
//
// Token classes:
//   - Access and refresh tokens are HS256 JWTs, each class signed with
//     its own secret. Validity is entirely a function of signature and
//     expiry; nothing is stored server-side.
//   - Verification, reset, and CSRF tokens share one keyed primitive:
//     an HMAC-SHA256 over subject, nonce, and issue timestamp. Reset
//     tokens embed the subject so the token alone identifies the user;
//     verification and CSRF tokens require the subject out-of-band.
//
// Roles and permissions:
//   - A fixed role tier set (USER, MODERATOR, ADMIN) with baseline
//     permission edges, plus per-user grant/revoke overrides. The
//     effective set is role-union plus overrides, resolved at token
//     mint time. Seeding is an idempotent bootstrap routine.
//
// The Authenticator composes the stores, the bcrypt hasher, and the
// token codecs into the register, login, refresh, logout, verify,
// forgot/reset-password, and OAuth callback flows. RouteAuthenticator
// adds the cookie contract and error translation for go-router apps,
// and middleware/csrf provides the rotating double-submit guard.
package auth
