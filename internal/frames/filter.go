package frames

import "github.com/verte-zerg/formcoach/internal/model"

// FilterFunc returns true when a landmark should be kept.
type FilterFunc func(model.Landmark) bool

// MinVisibility drops landmarks whose detector confidence is below the
// threshold. Landmarks without a visibility score are kept.
func MinVisibility(threshold float64) FilterFunc {
	if threshold <= 0 {
		return nil
	}
	return func(lm model.Landmark) bool {
		return lm.Visibility == nil || *lm.Visibility >= threshold
	}
}

// Apply returns a copy of the frame with rejected landmarks cleared.
func Apply(frame model.Frame, keep FilterFunc) model.Frame {
	if keep == nil {
		return frame
	}
	out := model.Frame{OffsetMs: frame.OffsetMs, Landmarks: make([]*model.Landmark, len(frame.Landmarks))}
	for i, lm := range frame.Landmarks {
		if lm == nil || !keep(*lm) {
			continue
		}
		out.Landmarks[i] = lm
	}
	return out
}
