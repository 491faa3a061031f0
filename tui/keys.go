package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Toggle        key.Binding
	Filter        key.Binding
	Sort          key.Binding
	ShowCompleted key.Binding
	ClearDone     key.Binding
	Panel         key.Binding
	Permission    key.Binding
	Reload        key.Binding
	Quit          key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "subir")),
		Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "descer")),
		Toggle:        key.NewBinding(key.WithKeys(" "), key.WithHelp("espaço", "concluir")),
		Filter:        key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6"), key.WithHelp("1-6", "filtros")),
		Sort:          key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "ordenar")),
		ShowCompleted: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "concluídas")),
		ClearDone:     key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "limpar")),
		Panel:         key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "vencidas")),
		Permission:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notificações")),
		Reload:        key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recarregar")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Toggle, k.Filter, k.Panel, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle},
		{k.Filter, k.Sort, k.ShowCompleted, k.ClearDone},
		{k.Panel, k.Permission, k.Reload, k.Quit},
	}
}

// panelKeyMap is the binding set while the due task panel is open.
type panelKeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Open  key.Binding
	Close key.Binding
	Quit  key.Binding
}

func newPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "subir")),
		Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "descer")),
		Open:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "abrir tarefa")),
		Close: key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "fechar")),
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),
	}
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Open, k.Close, k.Quit}
}

func (k panelKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
