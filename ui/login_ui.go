package ui

import (
	"strings"

	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
)

// LoginUI asks for a display name and signs in as a guest.
type LoginUI struct {
	UI *ebitenui.UI

	OnGuest func(name string)

	nameInput   *widget.TextInput
	guestButton *widget.Button
	statusLabel *widget.Label

	faces faces
}

// NewLoginUI builds the sign-in screen. suggested prefills the name field.
func NewLoginUI(suggested string, onGuest func(name string)) *LoginUI {
	l := &LoginUI{OnGuest: onGuest, faces: loadFaces()}
	l.buildUI(suggested)
	return l
}

func (l *LoginUI) buildUI(suggested string) {
	rootContainer := root()
	content := column(10)

	content.AddChild(label("TWINFLAME", &l.faces.title, white))
	content.AddChild(label("Two players, one fire and one water. Reach both exits.", &l.faces.small, grey))

	form := panel()
	nameRow := row(6)
	nameRow.AddChild(label("Name:", &l.faces.normal, grey))
	l.nameInput = textInput(&l.faces.normal, "guest", 220)
	l.nameInput.SetText(suggested)
	nameRow.AddChild(l.nameInput)
	form.AddChild(nameRow)

	l.guestButton = button("Play as guest", &l.faces.normal, goButtonImage(), 160, 28, func() {
		if l.OnGuest != nil {
			l.OnGuest(strings.TrimSpace(l.nameInput.GetText()))
		}
	})
	form.AddChild(l.guestButton)
	content.AddChild(form)

	l.statusLabel = label("", &l.faces.small, errorRed)
	content.AddChild(l.statusLabel)

	rootContainer.AddChild(content)
	l.UI = &ebitenui.UI{Container: rootContainer}
}

func (l *LoginUI) SetStatus(msg string) {
	l.statusLabel.Label = msg
}

// SetBusy disables the form while a sign-in is in flight.
func (l *LoginUI) SetBusy(busy bool) {
	l.guestButton.GetWidget().Disabled = busy
}

func (l *LoginUI) Update() {
	l.UI.Update()
}
