package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ExtractUintParam извлекает числовой параметр URL и кладет его в контекст
// под ключом contextKey. Маршруты викторин вешают его на группу /:id, после
// чего обработчики читают c.MustGet("quizID") без повторного парсинга.
// Ноль отклоняется: идентификаторы в базе начинаются с 1.
func ExtractUintParam(paramName, contextKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || value == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s: %q", paramName, raw)})
			c.Abort()
			return
		}

		c.Set(contextKey, uint(value))
		c.Next()
	}
}
