package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	buttonStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("62"))
	deleteButtonStyle = buttonStyle.Background(lipgloss.Color("160"))

	bannerSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("118")).Bold(true)
	bannerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	logPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62"))

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	userTextStyle  = lipgloss.NewStyle().PaddingLeft(2)
	botTextStyle   = lipgloss.NewStyle().PaddingLeft(2)

	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)
