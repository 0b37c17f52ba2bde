package metrics

import (
	"testing"
	"time"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	// Helpers must not panic after Init.
	CountItem("ema", OutcomeEmitted)
	CountRecord("ema")
	CountFetchError("fda")
	CountAttachment("ema")
	CountDateParseFailure("who")
	SetListingCandidates("pmda", 12)
	ObservePolitenessDelay("fda", 30*time.Second)
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	// Collectors are package-level; if another test already ran Init the
	// nil-guard cannot be exercised here, but the calls must still be safe.
	CountItem("ema", OutcomeFailed)
	ObservePolitenessDelay("ema", time.Second)
}
