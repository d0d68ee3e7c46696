package delivery

import (
	"math"
	"net/http"
	"strconv"

	"ory-kratos-login/animation"
	"ory-kratos-login/delivery/model"
)

// scrollAnimationHandler serves the reveal-on-scroll variants, optionally with
// a custom onscreen duration.
func (h *HTTPEndpoint) scrollAnimationHandler(w http.ResponseWriter, r *http.Request) {
	var custom *animation.Custom

	if raw := r.URL.Query().Get("duration"); raw != "" {
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil || d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			writeJSONError(w, http.StatusBadRequest, "INVALID_DURATION", "duration must be a finite non-negative number")
			return
		}
		custom = animation.Duration(d)
	}

	writeJSON(w, http.StatusOK, model.VariantsResponse(animation.ScrollAnimation().ResolveAll(custom)))
}
