package ui

import (
	"fmt"
	"sort"

	"github.com/automoto/twinflame/lobby"
	"github.com/ebitenui/ebitenui"
	"github.com/ebitenui/ebitenui/widget"
)

// LobbyActions are the calls the lobby screen makes. The scene runs them
// off the UI goroutine.
type LobbyActions struct {
	Create   func(name string)
	Join     func(id string)
	Leave    func(id string)
	SetReady func(id string, ready bool)
	Start    func(id string)
}

// LobbyUI lists the open sessions and the controls for the caller's own.
type LobbyUI struct {
	UI      *ebitenui.UI
	Actions LobbyActions

	uid string

	sessions map[string]lobby.SessionRecord
	mine     string

	nameInput    *widget.TextInput
	createButton *widget.Button
	listPanel    *widget.Container
	minePanel    *widget.Container
	mineLabel    *widget.Label
	statusOfMine *widget.Label
	readyButton  *widget.Button
	startButton  *widget.Button
	leaveButton  *widget.Button
	statusLabel  *widget.Label
	gemsLabel    *widget.Label

	faces faces
}

// NewLobbyUI builds the lobby for the signed-in user.
func NewLobbyUI(uid, name string, actions LobbyActions) *LobbyUI {
	lui := &LobbyUI{
		Actions:  actions,
		uid:      uid,
		sessions: map[string]lobby.SessionRecord{},
		faces:    loadFaces(),
	}
	lui.buildUI(name)
	lui.refresh()
	return lui
}

func (lui *LobbyUI) buildUI(name string) {
	rootContainer := root()
	content := column(8)

	content.AddChild(label("LOBBY", &lui.faces.title, white))
	header := row(16)
	header.AddChild(label("Signed in as "+name, &lui.faces.small, grey))
	lui.gemsLabel = label("", &lui.faces.small, highlight)
	header.AddChild(lui.gemsLabel)
	content.AddChild(header)

	createRow := row(6)
	lui.nameInput = textInput(&lui.faces.normal, "session name", 220)
	createRow.AddChild(lui.nameInput)
	lui.createButton = button("Create", &lui.faces.normal, goButtonImage(), 90, 26, func() {
		if lui.Actions.Create != nil {
			lui.Actions.Create(lui.nameInput.GetText())
		}
	})
	createRow.AddChild(lui.createButton)
	content.AddChild(createRow)

	lui.minePanel = panel()
	lui.mineLabel = label("", &lui.faces.normal, highlight)
	lui.minePanel.AddChild(lui.mineLabel)
	lui.statusOfMine = label("", &lui.faces.small, grey)
	lui.minePanel.AddChild(lui.statusOfMine)
	controls := row(8)
	lui.readyButton = button("Ready", &lui.faces.normal, buttonImage(), 90, 26, func() {
		rec, ok := lui.sessions[lui.mine]
		if ok && lui.Actions.SetReady != nil {
			lui.Actions.SetReady(lui.mine, !rec.Ready[lui.uid])
		}
	})
	controls.AddChild(lui.readyButton)
	lui.startButton = button("START", &lui.faces.normal, goButtonImage(), 100, 26, func() {
		if lui.Actions.Start != nil {
			lui.Actions.Start(lui.mine)
		}
	})
	controls.AddChild(lui.startButton)
	lui.leaveButton = button("Leave", &lui.faces.normal, buttonImage(), 90, 26, func() {
		if lui.Actions.Leave != nil {
			lui.Actions.Leave(lui.mine)
		}
	})
	controls.AddChild(lui.leaveButton)
	lui.minePanel.AddChild(controls)
	content.AddChild(lui.minePanel)

	content.AddChild(label("Open sessions", &lui.faces.small, grey))
	lui.listPanel = panel()
	content.AddChild(lui.listPanel)

	lui.statusLabel = label("", &lui.faces.small, errorRed)
	content.AddChild(lui.statusLabel)

	rootContainer.AddChild(content)
	lui.UI = &ebitenui.UI{Container: rootContainer}
}

// SetSessions replaces the session list with the latest delivery.
func (lui *LobbyUI) SetSessions(sessions map[string]lobby.SessionRecord, mine string) {
	lui.sessions = sessions
	lui.mine = mine
	lui.refresh()
}

func (lui *LobbyUI) SetStatus(msg string) {
	lui.statusLabel.Label = msg
}

func (lui *LobbyUI) SetGems(n int64) {
	lui.gemsLabel.Label = fmt.Sprintf("Gems collected: %d", n)
}

func (lui *LobbyUI) refresh() {
	rec, inSession := lui.sessions[lui.mine]
	lui.createButton.GetWidget().Disabled = inSession
	lui.readyButton.GetWidget().Disabled = !inSession
	lui.leaveButton.GetWidget().Disabled = !inSession
	lui.startButton.GetWidget().Disabled = !inSession || lobby.CanStart(rec, lui.uid) != nil

	if inSession {
		lui.mineLabel.Label = fmt.Sprintf("Your session: %s (%d/%d)", rec.Name, len(rec.Players), rec.Capacity())
		lui.statusOfMine.Label = lobby.StatusOf(rec).String()
		if rec.Ready[lui.uid] {
			setButtonText(lui.readyButton, "Not ready")
		} else {
			setButtonText(lui.readyButton, "Ready")
		}
	} else {
		lui.mineLabel.Label = "You are not in a session"
		lui.statusOfMine.Label = ""
		setButtonText(lui.readyButton, "Ready")
	}

	lui.listPanel.RemoveChildren()
	ids := make([]string, 0, len(lui.sessions))
	for id := range lui.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		lui.listPanel.AddChild(label("No sessions yet. Create one.", &lui.faces.small, grey))
		return
	}
	for _, id := range ids {
		lui.listPanel.AddChild(lui.sessionRow(id, lui.sessions[id], inSession))
	}
}

func (lui *LobbyUI) sessionRow(id string, rec lobby.SessionRecord, inSession bool) *widget.Container {
	r := row(10)
	c := white
	if id == lui.mine {
		c = highlight
	}
	r.AddChild(label(fmt.Sprintf("%-24s %d/%d", rec.Name, len(rec.Players), rec.Capacity()), &lui.faces.normal, c))
	r.AddChild(label(lobby.StatusOf(rec).String(), &lui.faces.small, grey))

	join := button("Join", &lui.faces.small, buttonImage(), 60, 22, func() {
		if lui.Actions.Join != nil {
			lui.Actions.Join(id)
		}
	})
	join.GetWidget().Disabled = inSession || len(rec.Players) >= rec.Capacity() || rec.Start
	r.AddChild(join)
	return r
}

func (lui *LobbyUI) Update() {
	lui.UI.Update()
}
