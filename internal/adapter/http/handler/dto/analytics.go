package dto

import (
	"time"

	"github.com/courierops/fieldtrack/internal/domain/models"
	"github.com/courierops/fieldtrack/pkg/validator"
)

const dateLayout = "2006-01-02"

type RecomputeRequest struct {
	Date string `json:"date"`
}

func (r *RecomputeRequest) Validate(v *validator.Validator) {
	v.Check(r.Date != "", "date", "must be provided")

	if r.Date != "" {
		if _, err := time.Parse(dateLayout, r.Date); err != nil {
			v.AddError("date", "must use the YYYY-MM-DD format")
		}
	}
}

func (r *RecomputeRequest) ParsedDate() time.Time {
	d, _ := time.Parse(dateLayout, r.Date)
	return d
}

type WeightsUpdateRequest struct {
	CoursesWeight *float64 `json:"courses_weight"`
	ProfitWeight  *float64 `json:"profit_weight"`
}

func (r *WeightsUpdateRequest) Validate(v *validator.Validator) {
	v.Check(r.CoursesWeight != nil, "courses_weight", "must be provided")
	v.Check(r.ProfitWeight != nil, "profit_weight", "must be provided")

	if r.CoursesWeight != nil {
		v.Check(*r.CoursesWeight >= 0 && *r.CoursesWeight <= models.MaxCoursesWeight,
			"courses_weight", "must be between 0 and 10")
	}
	if r.ProfitWeight != nil {
		v.Check(*r.ProfitWeight >= 0 && *r.ProfitWeight <= models.MaxProfitWeight,
			"profit_weight", "must be between 0 and 1")
	}
}
