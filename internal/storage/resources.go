package storage

import (
	"fmt"

	"github.com/Epistemic-Technology/studysage/models"
)

// CalculateResourcePaths lists the resource URIs under which a stored
// session can be read back.
func CalculateResourcePaths(session *models.StudySession) []string {
	resourcePaths := []string{
		fmt.Sprintf("session://%s", session.ID),
		fmt.Sprintf("session://%s/summary", session.ID),
	}

	if len(session.Questions) > 0 {
		resourcePaths = append(resourcePaths, fmt.Sprintf("session://%s/quiz", session.ID))
	}

	return resourcePaths
}
