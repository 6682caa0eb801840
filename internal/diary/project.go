package diary

// Project splits records into pending and completed, keeping canonical order.
func Project(records []Record) (pending, completed []Record) {
	pending = make([]Record, 0, len(records))
	completed = make([]Record, 0)
	for _, r := range records {
		if r.Completed {
			completed = append(completed, r)
		} else {
			pending = append(pending, r)
		}
	}
	return pending, completed
}
