// Package validator checks tagged request and use case input structs.
//
// Callers depend on Validator. V10Validator backs it with
// go-playground/validator and adds the "otp" tag for six-digit codes.
package validator
