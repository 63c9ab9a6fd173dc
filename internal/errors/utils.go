package errors

import (
	"errors"
)

// Wrap wraps an error with additional context, creating a TabsError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *TabsError {
	if err == nil {
		return nil
	}

	var te *TabsError
	if errors.As(err, &te) {
		var context map[string]interface{}
		if len(te.Context) > 0 {
			context = make(map[string]interface{}, len(te.Context))
			for k, v := range te.Context {
				context[k] = v
			}
		}
		return &TabsError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       err,
			Context:     context,
			Component:   te.Component,
			Recoverable: te.Recoverable,
		}
	}

	return &TabsError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNetwork,
	}
}

// WrapIO wraps an error as an I/O error
func WrapIO(err error, code, message string) *TabsError {
	wrapped := Wrap(err, ErrorTypeIO, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// WrapConfig wraps an error as a configuration error
func WrapConfig(err error, code, message string) *TabsError {
	wrapped := Wrap(err, ErrorTypeConfig, code, message)
	if wrapped != nil {
		wrapped.Recoverable = false
	}
	return wrapped
}

// IsType reports whether any error in err's chain is a TabsError of errType.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var te *TabsError
		if !errors.As(err, &te) {
			return false
		}
		if te.Type == errType {
			return true
		}
		err = te.Cause
	}
	return false
}

// GetCode returns the code of the outermost TabsError in err's chain.
func GetCode(err error) string {
	var te *TabsError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}
