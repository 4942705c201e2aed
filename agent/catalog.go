package agent

func function(name ToolName, description string, properties map[string]any, required ...string) ToolDefinition {
	if required == nil {
		required = []string{}
	}
	return ToolDefinition{
		Type: "function",
		Function: FunctionDefinition{
			Name:        string(name),
			Description: description,
			Parameters: map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

func prop(typ, description string) map[string]any {
	p := map[string]any{"type": typ}
	if description != "" {
		p["description"] = description
	}
	return p
}

var catalog = []ToolDefinition{
	function(ToolSearchCandidates, "Search for candidates by name, email, phone or country. Specific fields take precedence over the general query.",
		map[string]any{
			"query":      prop("string", "General search term, optional when specific fields are used"),
			"first_name": prop("string", "First name of the candidate"),
			"last_name":  prop("string", "Last name of the candidate"),
			"email":      prop("string", "Email address"),
			"phone":      prop("string", "Phone number"),
			"country":    prop("string", "Country filter, e.g. 'US' or 'UK'"),
		}),
	function(ToolGetCandidateDetails, "Get the full record of a candidate by ID, including their interviews.",
		map[string]any{
			"candidate_id": prop("integer", "The ID of the candidate"),
		}, "candidate_id"),
	function(ToolAddCandidate, "Add a new candidate.",
		map[string]any{
			"first_name": prop("string", ""),
			"last_name":  prop("string", ""),
			"email":      prop("string", ""),
			"phone":      prop("string", ""),
			"country":    prop("string", "e.g. 'US' or 'UK'"),
		}, "first_name", "last_name", "email"),
	function(ToolUpdateCandidate, "Update candidate details. Only the supplied fields change.",
		map[string]any{
			"candidate_id": prop("integer", "ID of the candidate to update"),
			"first_name":   prop("string", ""),
			"last_name":    prop("string", ""),
			"email":        prop("string", ""),
			"phone":        prop("string", ""),
			"country":      prop("string", ""),
			"address":      prop("string", ""),
			"citizenship":  prop("string", ""),
			"notes":        prop("string", ""),
		}, "candidate_id"),
	function(ToolCheckAvailability, "List open interview slots between two dates (inclusive).",
		map[string]any{
			"start_date": prop("string", "ISO date YYYY-MM-DD"),
			"end_date":   prop("string", "ISO date YYYY-MM-DD"),
			"preferred_times": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Times of day as HH:MM, defaults to every half hour from 09:00 to 16:30",
			},
			"exclude_candidate_id": prop("integer", "Hide slots this candidate is already booked on"),
		}, "start_date", "end_date"),
	function(ToolScheduleInterview, "Schedule an interview for a candidate.",
		map[string]any{
			"candidate_id":   prop("integer", ""),
			"interview_date": prop("string", "ISO datetime YYYY-MM-DDTHH:MM:SS"),
			"interview_time": prop("string", "Display time of day, e.g. '10:00 AM'"),
			"meet_link":      prop("string", "Video meeting link"),
			"notes":          prop("string", ""),
		}, "candidate_id", "interview_date"),
	function(ToolDeleteInterview, "Delete (cancel) an interview.",
		map[string]any{
			"interview_id": prop("integer", ""),
		}, "interview_id"),
	function(ToolGetSchedule, "Get upcoming interviews.",
		map[string]any{
			"limit": prop("integer", "Number of interviews to fetch"),
		}),
	function(ToolDraftEmail, "Draft an email to a candidate. The draft is saved, not sent.",
		map[string]any{
			"recipient_email": prop("string", ""),
			"subject":         prop("string", ""),
			"content":         prop("string", "HTML content of the email"),
		}, "recipient_email", "subject", "content"),
}
