package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Códigos de salida.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // auditoría inconsistente o validación fallida
	ExitCommandError = 2 // almacenamiento inaccesible, flags inválidos
)

// ExitError error con código de salida.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError error sin causa subyacente.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError envuelve err con un código de salida.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode ExitFailure si err no es un ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter salida en texto o JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse envoltorio de la salida JSON.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" | "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Success escribe data; en modo texto usa la línea ya formateada.
func (f *OutputFormatter) Success(data interface{}, text string) error {
	if f.Format == "json" {
		return f.writeJSON(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Failure escribe el fallo y devuelve un ExitError con code.
func (f *OutputFormatter) Failure(code int, data interface{}, message string) error {
	if f.Format == "json" {
		if err := f.writeJSON(CLIResponse{Status: "error", Data: data, Error: message}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "✗ "+message)
	}
	return NewExitError(code, message)
}

func (f *OutputFormatter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
