package routes

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// API responses follow one envelope: success plus either payload fields
// or an error message.
func jsonOK(c echo.Context, status int, payload map[string]any) error {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

func jsonError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]any{"success": false, "error": message})
}

func majorUnits(cents int64) string {
	return fmt.Sprintf("%.2f", float64(cents)/100)
}
