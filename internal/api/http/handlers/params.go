package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/domain"
	"github.com/facilityops/visit-booking/internal/service"
)

func parseTime(field, val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, domain.NewValidationError(field, "must be an RFC3339 timestamp")
	}
	return &t, nil
}

// parseDate reads a calendar date (YYYY-MM-DD) at the facility.
func parseDate(field, val string, loc *time.Location) (time.Time, error) {
	if val == "" {
		return time.Time{}, domain.NewValidationError(field, "required")
	}
	d, err := time.ParseInLocation(time.DateOnly, val, loc)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "must be a YYYY-MM-DD date")
	}
	return d, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parsePage(c *fiber.Ctx) service.Page {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return service.Page{Limit: pageSize, Offset: (page - 1) * pageSize}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCategories(raw string) ([]domain.Category, error) {
	var out []domain.Category
	for _, part := range splitList(raw) {
		c, err := domain.ParseCategory(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseStatuses(raw string) ([]domain.Status, error) {
	var out []domain.Status
	for _, part := range splitList(raw) {
		s, err := domain.ParseStatus(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseChangeKinds(raw string) ([]domain.ChangeKind, error) {
	var out []domain.ChangeKind
	for _, part := range splitList(raw) {
		k := domain.ChangeKind(strings.ToUpper(part))
		if !k.Valid() {
			return nil, domain.NewValidationError("change_kind", "unknown change kind "+part)
		}
		out = append(out, k)
	}
	return out, nil
}
