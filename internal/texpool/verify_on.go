//go:build texverify

package texpool

// verifyLookups cross-checks every lookup against the instance list of its texture.
const verifyLookups = true
