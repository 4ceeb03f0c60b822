package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTagID кодирует идентификатор метки четырьмя заглавными hex-символами.
func FormatTagID(id int) string {
	return fmt.Sprintf("%04X", id)
}

// ParseTagID принимает ровно четыре hex-символа в любом регистре.
func ParseTagID(hex string) (int, error) {
	hex = strings.TrimSpace(hex)
	if len(hex) != 4 {
		return 0, fmt.Errorf("идентификатор метки должен состоять из 4 hex-символов, получено %q", hex)
	}
	n, err := strconv.ParseUint(hex, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("неверный идентификатор метки %q: %w", hex, err)
	}
	return int(n), nil
}
