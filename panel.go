package adminform

// Defined in static/admin.js, bind datepicker, confirm and ajax buttons
const reinitScript = "adminPanelInit();"

// Base of admin panels. Client side behaviours should be bound again
// after part of page replaced
func reinitPanelJs(h PartialPageHandler) {
	h.AppendJavaScript(reinitScript)
}
