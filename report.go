package deviceinfo

import (
	"encoding/json"
	"time"

	"github.com/vitalis-app/deviceinfo/models"
	"github.com/vitalis-app/deviceinfo/result"
)

// Report is an immutable snapshot of one CollectAll pass. A category is
// absent when its outcome was left out of the pass.
type Report struct {
	hardware *result.Result[models.HardwareInfo]
	system   *result.Result[models.SystemInfo]
	network  *result.Result[models.NetworkInfo]

	generatedAt time.Time
}

// NewReport assembles a report from optional per-category outcomes. It
// exists for hosts and tests that build reports outside CollectAll.
func NewReport(
	hardware *result.Result[models.HardwareInfo],
	system *result.Result[models.SystemInfo],
	network *result.Result[models.NetworkInfo],
	generatedAt time.Time,
) *Report {
	return &Report{hardware: hardware, system: system, network: network, generatedAt: generatedAt}
}

// GeneratedAt returns when the pass finished.
func (r *Report) GeneratedAt() time.Time { return r.generatedAt }

// Hardware returns the hardware payload if present and successful.
func (r *Report) Hardware() (models.HardwareInfo, bool) { return payload(r.hardware) }

// System returns the system payload if present and successful.
func (r *Report) System() (models.SystemInfo, bool) { return payload(r.system) }

// Network returns the network payload if present and successful.
func (r *Report) Network() (models.NetworkInfo, bool) { return payload(r.network) }

func payload[T any](res *result.Result[T]) (T, bool) {
	if res == nil {
		var zero T
		return zero, false
	}
	return res.Value()
}

// Result returns the outcome recorded for c.
func (r *Report) Result(c Category) (result.Outcome, bool) {
	switch c {
	case CategoryHardware:
		if r.hardware != nil {
			return *r.hardware, true
		}
	case CategorySystem:
		if r.system != nil {
			return *r.system, true
		}
	case CategoryNetwork:
		if r.network != nil {
			return *r.network, true
		}
	}
	return nil, false
}

// Categories returns the categories present in the report, in collection
// order.
func (r *Report) Categories() []Category {
	var out []Category
	for _, c := range Categories() {
		if _, ok := r.Result(c); ok {
			out = append(out, c)
		}
	}
	return out
}

// All returns every recorded outcome keyed by category.
func (r *Report) All() map[Category]result.Outcome {
	out := make(map[Category]result.Outcome, 3)
	for _, c := range Categories() {
		if o, ok := r.Result(c); ok {
			out[c] = o
		}
	}
	return out
}

// HasErrors reports whether any recorded outcome is an Error.
func (r *Report) HasErrors() bool {
	return len(r.Errors()) > 0
}

// Errors returns the messages of all Error outcomes in collection order.
func (r *Report) Errors() []string {
	var msgs []string
	for _, c := range Categories() {
		if o, ok := r.Result(c); ok && o.Kind() == result.KindError {
			msgs = append(msgs, o.Message())
		}
	}
	return msgs
}

type reportJSON struct {
	GeneratedAt time.Time                           `json:"generated_at"`
	Hardware    *result.Result[models.HardwareInfo] `json:"hardware,omitempty"`
	System      *result.Result[models.SystemInfo]   `json:"system,omitempty"`
	Network     *result.Result[models.NetworkInfo]  `json:"network,omitempty"`
	Errors      []string                            `json:"errors,omitempty"`
}

// MarshalJSON encodes the report with one key per present category.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{
		GeneratedAt: r.generatedAt,
		Hardware:    r.hardware,
		System:      r.system,
		Network:     r.network,
		Errors:      r.Errors(),
	})
}
