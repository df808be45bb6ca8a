// ABOUTME: Optional side channel for per-epoch training loss reported by node2vec.
// ABOUTME: Parses loss lines from tool output and forwards them to a LossSink.
package embedding

import (
	"regexp"
	"strconv"

	"github.com/2389-research/ppiembed/internal/logger"
)

// LossSink receives the training loss after each epoch.
// ReportLoss may be called concurrently from the stdout and stderr readers.
type LossSink interface {
	ReportLoss(epoch int, loss float64)
}

// LogLossSink writes each reported loss to the logger at info level.
type LogLossSink struct{}

// ReportLoss implements LossSink.
func (LogLossSink) ReportLoss(epoch int, loss float64) {
	logger.Info("node2vec epoch finished", "epoch", epoch, "loss", loss)
}

var lossPattern = regexp.MustCompile(`(?i)\bepoch\b\D*(\d+).*?\bloss\b\D*?([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)`)

// parseLoss extracts an epoch number and loss value from a line of tool output.
func parseLoss(line string) (epoch int, loss float64, ok bool) {
	m := lossPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	epoch, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	loss, err = strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0, false
	}
	return epoch, loss, true
}
