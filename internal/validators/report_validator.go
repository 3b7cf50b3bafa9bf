package validators

import (
	"supportmatch/internal/models"
)

// ValidateReportSubmission checks the submission payload. A nil payload is
// itself a validation failure.
func ValidateReportSubmission(req *models.ReportSubmission) ValidationErrors {
	if req == nil {
		return ValidationErrors{{Field: "payload", Tag: "required", Message: "payload is required"}}
	}

	errs := ValidateStruct(req)
	if cause := coordinatePair(req.Latitude, req.Longitude); cause != nil {
		errs = append(errs, *cause)
	}
	return errs
}

func ValidateSupportServiceRequest(req *models.SupportServiceRequest) ValidationErrors {
	if req == nil {
		return ValidationErrors{{Field: "payload", Tag: "required", Message: "payload is required"}}
	}

	errs := ValidateStruct(req)
	if cause := coordinatePair(req.Latitude, req.Longitude); cause != nil {
		errs = append(errs, *cause)
	}
	return errs
}
