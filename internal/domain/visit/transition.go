package visit

// transitions lists, per source status, the statuses a visit may move to.
// Every move is currently allowed; tightening the workflow means editing
// this table only.
var transitions = map[VisitStatus]map[VisitStatus]bool{
	StatusPending:  {StatusPending: true, StatusConfirm: true, StatusComplete: true, StatusCancel: true},
	StatusConfirm:  {StatusPending: true, StatusConfirm: true, StatusComplete: true, StatusCancel: true},
	StatusComplete: {StatusPending: true, StatusConfirm: true, StatusComplete: true, StatusCancel: true},
	StatusCancel:   {StatusPending: true, StatusConfirm: true, StatusComplete: true, StatusCancel: true},
}

// CanTransition reports whether a visit in status from may be set to to.
func CanTransition(from, to VisitStatus) bool {
	return transitions[from][to]
}

// sourcesFor returns the statuses from which to is reachable, in display order.
func sourcesFor(to VisitStatus) []VisitStatus {
	var out []VisitStatus
	for _, from := range Statuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}
