package intake

import (
	"fmt"
	"strings"
)

const (
	askIssueTypePrompt = "What type of issue are you reporting? Please choose from: Garbage, Water, Road, Streetlight, Drainage, or Others."

	// Greeting opens every new session.
	Greeting = "Hello! I am the Community Helpdesk Assistant. " + askIssueTypePrompt

	// ErrorReply is returned when a step fails unexpectedly.
	ErrorReply = "I encountered an issue processing your message. Please try again or rephrase your response."

	askLocationRetry    = "Please provide a location for the issue."
	askDescription      = "Could you please provide a detailed description of the issue?"
	askDescriptionRetry = "Please provide a description of the issue."
	askName             = "Thank you for the details. May I have your name, please?"
	askNameRetry        = "I didn't catch your name. Could you please tell me your name?"
	askContactRetry     = "Please provide a valid contact number with at least 10 digits."
	confirmRetry        = "Please respond with 'Yes' or 'No' to confirm."
	restartPrompt       = "No problem! Let's start over. " + askIssueTypePrompt
	successReply        = "Thank you for reporting the issue. Your complaint has been successfully registered. Our team will review it and contact you soon. Have a great day!"
	alreadyRegistered   = "Thank you! Your complaint has already been registered. Is there anything else I can help you with?"
	helpReply           = "I'm here to help. How can I assist you today?"
)

func issueTypeRetry() string {
	return "I didn't recognize that issue type. Please choose from: " + strings.Join(IssueTypes, ", ")
}

func askLocation(issueType string) string {
	return fmt.Sprintf("Got it! %s issue. Where is this issue located? Please provide the address or location.", issueType)
}

func askContact(name string) string {
	return fmt.Sprintf("Thank you for informing, %s. May I have your contact number for follow-up?", name)
}

func summary(s State) string {
	var b strings.Builder
	b.WriteString("Thank you! Let me confirm your details:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Issue Type: %s\n", s.IssueType)
	fmt.Fprintf(&b, "Location: %s\n", s.Location)
	fmt.Fprintf(&b, "Description: %s\n", s.Description)
	fmt.Fprintf(&b, "Contact: %s\n\n", s.Phone)
	b.WriteString("Is this information correct? (Yes/No)")
	return b.String()
}
