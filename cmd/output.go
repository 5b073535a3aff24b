package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/frahmantamala/optical-pos/internal"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(field, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationFieldError(field, fmt.Sprintf("%s must be a positive number", field), internal.ErrCodeValidationFailed)
	}
	return id, nil
}

func parseInt(field, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, internal.NewValidationFieldError(field, fmt.Sprintf("%s must be a whole number", field), internal.ErrCodeInvalidQuantity)
	}
	return n, nil
}
