package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const maxDisplayNameLength = 32

// generateDisplayName creates a short fun display name
func generateDisplayName() string {
	adjectives := []string{"Lucky", "Swift", "Brave", "Jolly", "Mighty", "Quiet", "Clever", "Happy", "Shiny", "Zesty"}
	nouns := []string{"Marble", "Pin", "Bumper", "Champion", "Sevens", "Ace", "Comet", "Jackpot", "Tiger", "Drift"}
	now := time.Now().UnixNano()
	si := now % int64(len(nouns))
	ai := (now / 7) % int64(len(adjectives))
	num := int(now % 1000)
	return fmt.Sprintf("%s %s %d", adjectives[ai], nouns[si], num)
}

// normalizeDisplayName trims name and reports whether it is usable.
func normalizeDisplayName(name string) (string, bool) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" || utf8.RuneCountInString(name) > maxDisplayNameLength {
		return "", false
	}
	return name, true
}

// queryLimit reads ?limit= clamped to [1, max].
func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func currentPlayerID(c *gin.Context) int {
	return c.GetInt("player_id")
}
