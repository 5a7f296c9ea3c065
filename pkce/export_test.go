package pkce

var RandomVerifierFrom = randomVerifier
