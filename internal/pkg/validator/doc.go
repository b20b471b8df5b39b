// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface. The concrete
// implementation wraps go-playground/validator v10 and adds the rules the
// contact flow needs: "mailbox" (loose address syntax) and "otpcode"
// (exactly six ASCII digits).
package validator
