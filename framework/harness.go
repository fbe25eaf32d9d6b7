package framework

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// Harness represents one run of the scenario suite against a remote service.
// Constructing it verifies that the service is answering at all before any
// scenario runs, since the service under test may be cold-starting.
type Harness struct {
	serviceBaseURL string
	logger         Logger
}

// NewHarness polls the service's root URL until it responds, or fails after
// the given timeout. It does not care what status the root returns, only
// that something is listening and speaking HTTP.
func NewHarness(
	serviceBaseURL string,
	statusQueryTimeout time.Duration,
	debugLogger Logger,
	startupOutput io.Writer,
) (*Harness, error) {
	if debugLogger == nil {
		debugLogger = NullLogger()
	}

	h := &Harness{
		serviceBaseURL: serviceBaseURL,
		logger:         debugLogger,
	}

	if err := waitForService(serviceBaseURL, statusQueryTimeout, startupOutput); err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Harness) ServiceBaseURL() string {
	return h.serviceBaseURL
}

func waitForService(url string, timeout time.Duration, output io.Writer) error {
	fmt.Fprintf(output, "Connecting to service at %s", url)

	deadline := time.Now().Add(timeout)
	for {
		fmt.Fprintf(output, ".")
		resp, err := http.DefaultClient.Get(url)
		if err == nil {
			fmt.Fprintln(output)
			if resp.Body != nil {
				_ = resp.Body.Close()
			}
			fmt.Fprintf(output, "Service answered with status %d\n", resp.StatusCode)
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("timed out, result of last query was: %w", err)
		}
		time.Sleep(time.Millisecond * 100)
	}
}
