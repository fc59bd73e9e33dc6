package app

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pausedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	countStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true).Padding(0, 1)
	selectedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("236"))
	disabledStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Italic(true)
	dividerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	pillFrameStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("69")).Padding(0, 1)
	toastInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("29")).Bold(true)
	toastErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("160")).Bold(true)
	toastWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("136")).Bold(true)
)
