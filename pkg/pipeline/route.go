package pipeline

import (
	"mindroute/pkg/conversation"
	"mindroute/pkg/persona"
)

// Route picks the responder for the category recorded on state.
func Route(state *conversation.State) persona.Name {
	category, _ := state.Category()
	return RouteCategory(category)
}

// RouteCategory is total: only the emotional category reaches the therapist,
// everything else (including an empty or unknown category) goes to the
// logical persona.
func RouteCategory(category conversation.Category) persona.Name {
	if category == conversation.CategoryEmotional {
		return persona.Therapist
	}
	return persona.Logical
}
