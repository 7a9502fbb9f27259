package ingress

import (
	stderrors "pdf-relay/internal/common/errors"
	"pdf-relay/internal/models"
)

// Requirements lists what the downstream assembler needs from a submission.
// Checking here keeps the failure cheap: nothing is rendered or dialed before
// the request is known to be complete.
type Requirements struct {
	RequirePDF     bool
	RequiredAssets []string // image filenames, e.g. header.jpg/footer.jpg
}

// ValidateSubmission rejects submissions missing required parts before any
// assembly work begins.
func ValidateSubmission(sub *models.Submission, req Requirements) error {
	if req.RequirePDF && sub.PDF() == nil {
		return stderrors.NewValidationFailedError("no PDF file part in submission")
	}
	for _, asset := range req.RequiredAssets {
		if sub.ImageNamed(asset) == nil {
			return stderrors.NewAssetMissingError(asset)
		}
	}
	return nil
}
