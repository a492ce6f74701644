package entities

// DialogKind classifies how a confirmation step ended
type DialogKind string

const (
	DialogNone     DialogKind = "none"
	DialogNative   DialogKind = "native"
	DialogDOMModal DialogKind = "dom"
)

// DialogOutcome is the single result of a confirmation step.
// Text is only set for native dialogs.
type DialogOutcome struct {
	Kind DialogKind `json:"kind"`
	Text string     `json:"text,omitempty"`
}

// NativeDialogAccepted builds the outcome for an accepted browser alert/confirm
func NativeDialogAccepted(text string) DialogOutcome {
	return DialogOutcome{Kind: DialogNative, Text: text}
}

// DomDialogAccepted builds the outcome for a clicked in-page confirm button
func DomDialogAccepted() DialogOutcome {
	return DialogOutcome{Kind: DialogDOMModal}
}

// NoDialogPresent builds the outcome for a step that needed no confirmation
func NoDialogPresent() DialogOutcome {
	return DialogOutcome{Kind: DialogNone}
}

func (o DialogOutcome) String() string {
	if o.Kind == DialogNative {
		return "native(" + o.Text + ")"
	}
	return string(o.Kind)
}
