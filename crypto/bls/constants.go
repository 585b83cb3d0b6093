package bls

// CurveOrder of the BLS12-381 scalar field, as a base 10 string.
const CurveOrder = "52435875175126190479447740508185965837690552500527637822603658699938581184513"
