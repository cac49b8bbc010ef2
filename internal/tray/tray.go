package tray

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/petems/tapedeck/internal/app"
	"github.com/petems/tapedeck/internal/config"
	"github.com/petems/tapedeck/internal/events"
	"github.com/petems/tapedeck/internal/logging"
	"github.com/rs/zerolog"
)

type UI struct {
	app     *app.App
	bus     *events.Bus
	cfg     *config.Config
	version string
	commit  string
	log     zerolog.Logger
	onQuit  func()

	unsubscribe []func()

	// Menu items
	mStartStop *systray.MenuItem
	mPlayLast  *systray.MenuItem
	mMode      *systray.MenuItem
	mInputs    *systray.MenuItem
	mOutputs   *systray.MenuItem
	mCopy      *systray.MenuItem
}

type Options struct {
	App     *app.App
	Bus     *events.Bus
	Config  *config.Config
	Version string
	Commit  string
	Logger  zerolog.Logger
	// OnQuit runs after the tray loop exits.
	OnQuit func()
}

func New(opts Options) *UI {
	return &UI{
		app:     opts.App,
		bus:     opts.Bus,
		cfg:     opts.Config,
		version: opts.Version,
		commit:  opts.Commit,
		log:     opts.Logger.With().Str("component", "tray").Logger(),
		onQuit:  opts.OnQuit,
	}
}

// Run blocks on the systray loop. It must be called from the main goroutine.
func (u *UI) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		systray.Quit()
	}()
	systray.Run(u.onReady, u.onExit)
	return nil
}

func (u *UI) onReady() {
	u.updateStatus(events.StateIdle)
	systray.SetTooltip("Tape deck recorder")

	u.mStartStop = systray.AddMenuItem("Start Recording", "Record from the default microphone")
	u.mPlayLast = systray.AddMenuItem("Play Last Tape", "Play the newest recording")
	u.mPlayLast.Disable()
	systray.AddSeparator()

	u.mMode = systray.AddMenuItem(modeTitle(u.cfg.Mode), "Toggle between modes")
	systray.AddSeparator()

	u.mInputs = systray.AddMenuItem("Microphones", "Available input devices")
	u.mOutputs = systray.AddMenuItem("Speakers", "Available output devices")
	u.mCopy = systray.AddMenuItem("Copy Device List", "Copy device names to the clipboard")
	go u.buildDeviceMenus()

	systray.AddSeparator()
	mLogs := systray.AddMenuItem("Open Logs", "View application logs")
	mAbout := systray.AddMenuItem("About", "About Tapedeck")
	mQuit := systray.AddMenuItem("Quit", "Exit application")

	u.unsubscribe = append(u.unsubscribe,
		u.bus.Subscribe(func(e events.RecorderStateEvent) {
			u.updateStatus(e.State)
		}),
		u.bus.Subscribe(func(e events.TapeFinishedEvent) {
			u.mPlayLast.Enable()
			u.mPlayLast.SetTooltip(fmt.Sprintf("%s (%s)", e.Name, e.Duration.Round(100*time.Millisecond)))
		}),
		u.bus.Subscribe(func(e events.AudioErrorEvent) {
			systray.SetTooltip(fmt.Sprintf("Audio error during %s: %s", e.Op, e.Error))
		}),
	)

	go u.handleEvents(mLogs, mAbout, mQuit)
}

func (u *UI) handleEvents(mLogs, mAbout, mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mStartStop.ClickedCh:
			// Bridge calls block until the worker answers.
			go u.toggleRecording()
		case <-u.mPlayLast.ClickedCh:
			go u.playLast()
		case <-u.mMode.ClickedCh:
			u.toggleMode()
		case <-u.mCopy.ClickedCh:
			go u.copyDeviceList()
		case <-mLogs.ClickedCh:
			u.openLogs()
		case <-mAbout.ClickedCh:
			u.showAbout()
		case <-mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (u *UI) toggleRecording() {
	if err := u.app.ToggleRecording(); err != nil {
		u.log.Error().Err(err).Msg("Failed to toggle recording")
		return
	}
	if u.app.IsRecording() {
		u.mStartStop.SetTitle("Stop Recording")
	} else {
		u.mStartStop.SetTitle("Start Recording")
	}
}

func (u *UI) playLast() {
	if err := u.app.PlayLast(); err != nil {
		u.log.Error().Err(err).Msg("Failed to play last tape")
	}
}

func (u *UI) buildDeviceMenus() {
	inputs, err := u.app.InputDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list input devices")
	}
	for _, name := range inputs {
		u.mInputs.AddSubMenuItem(name, "").Disable()
	}

	outputs, err := u.app.OutputDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list output devices")
	}
	for _, name := range outputs {
		u.mOutputs.AddSubMenuItem(name, "").Disable()
	}
}

func (u *UI) copyDeviceList() {
	inputs, err := u.app.InputDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list input devices")
		return
	}
	outputs, err := u.app.OutputDevices()
	if err != nil {
		u.log.Error().Err(err).Msg("Failed to list output devices")
		return
	}

	if err := clipboard.WriteAll(formatDeviceList(inputs, outputs)); err != nil {
		u.log.Error().Err(err).Msg("Failed to copy device list")
		return
	}
	u.log.Info().Int("inputs", len(inputs)).Int("outputs", len(outputs)).Msg("Copied device list")
}

func (u *UI) toggleMode() {
	oldMode := u.cfg.Mode
	newMode := config.ModePushToTalk
	if oldMode == config.ModePushToTalk {
		newMode = config.ModeToggle
	}
	if err := u.app.SetMode(newMode); err != nil {
		u.log.Error().Err(err).Msg("Failed to save mode")
	}
	u.mMode.SetTitle(modeTitle(newMode))
	u.log.Info().Str("from", oldMode).Str("to", newMode).Msg("Changed mode")
}

func (u *UI) openLogs() {
	path := logging.LogPath()

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		u.log.Error().Err(err).Str("path", path).Msg("Failed to open logs")
		return
	}
	go func() { _ = cmd.Wait() }()
}

func (u *UI) showAbout() {
	// TODO: Show about dialog with native UI
	fmt.Printf("Tapedeck %s (%s)\nRecord and replay audio from the tray\n", u.version, u.commit)
}

func (u *UI) onExit() {
	for _, unsub := range u.unsubscribe {
		unsub()
	}
	if u.onQuit != nil {
		u.onQuit()
	}
}

// updateStatus sets the tray title with tape emoji and status indicator
func (u *UI) updateStatus(state events.RecorderState) {
	systray.SetTitle(fmt.Sprintf("📼 %s", emojiForState(state)))
}

// emojiForState returns the appropriate status emoji
func emojiForState(state events.RecorderState) string {
	switch state {
	case events.StateRecording:
		return "🔴" // Red - recording
	case events.StatePlaying:
		return "🔵" // Blue - playing back
	case events.StateIdle:
		return "🟢" // Green - ready/idle
	case events.StateError:
		return "⚪️" // White - error
	default:
		return "🟢"
	}
}

func modeTitle(mode string) string {
	if mode == config.ModePushToTalk {
		return "Mode: Push-to-Talk"
	}
	return "Mode: Toggle"
}

func formatDeviceList(inputs, outputs []string) string {
	var b strings.Builder
	b.WriteString("Input devices:\n")
	writeNames(&b, inputs)
	b.WriteString("Output devices:\n")
	writeNames(&b, outputs)
	return b.String()
}

func writeNames(b *strings.Builder, names []string) {
	if len(names) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, name := range names {
		fmt.Fprintf(b, "  %s\n", name)
	}
}
