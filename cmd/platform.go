package cmd

import (
	"time"

	"github.com/dramaplay/dramaplay/hls"
	"github.com/dramaplay/dramaplay/key"
	"github.com/dramaplay/dramaplay/log"
	"github.com/dramaplay/dramaplay/player"
	"github.com/dramaplay/dramaplay/session"
	"github.com/dramaplay/dramaplay/source"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// newPlatform wires the configured media element, browser surface and HLS engine.
func newPlatform() *player.Platform {
	platform := &player.Platform{
		Element: player.NewMPV(viper.GetString(key.PlayerMPVPath), viper.GetBool(key.HLSNative)),
		Surface: &player.Browser{App: viper.GetString(key.PlayerBrowser)},
	}

	if viper.GetBool(key.HLSSoftwareEngine) {
		platform.Engine = func() player.StreamEngine {
			return hls.New(hls.Options{
				BufferSegments: viper.GetInt(key.HLSBufferSegments),
				SegmentRetries: viper.GetInt(key.HLSSegmentRetries),
			})
		}
	}

	return platform
}

// withPlatform runs fn with a session constructor over platform, then closes
// the media element so no idle player outlives the command. fn must return only
// after its sessions are done.
func withPlatform(platform *player.Platform, fn func(newSession func() *session.Session) error) error {
	err := fn(sessionFactory(platform))
	if cerr := platform.Element.Close(); cerr != nil {
		log.Warnf("close media element: %v", cerr)
	}
	return err
}

// sessionFactory returns a constructor for sessions that share one platform.
// All sessions share the control loop and the backend worker, so a closing
// session always releases the media element before the next one attaches.
func sessionFactory(factory player.Factory) func() *session.Session {
	loop := session.NewEventLoop()
	worker := session.NewEventLoop()
	volume := float64(viper.GetInt(key.PlayerVolume)) / 100

	return func() *session.Session {
		return session.New(session.Options{
			Factory: factory,
			Loop:    loop,
			Worker:  worker,
			Volume:  mo.Some(volume),
		})
	}
}

func hideAfter() time.Duration {
	return time.Duration(viper.GetInt(key.PlayerControlsHideMs)) * time.Millisecond
}

// qualityFromFlags reads --quality, falling back to player.default_quality.
func qualityFromFlags(flag string) (source.Quality, error) {
	if flag == "" {
		flag = viper.GetString(key.PlayerDefaultQuality)
	}
	return source.ParseQuality(flag)
}
