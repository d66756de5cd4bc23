// Package config registers every setting with its default and binds viper to
// the config file and the DRAMAPLAY_* environment.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dramaplay/dramaplay/constant"
	"github.com/dramaplay/dramaplay/filesystem"
	"github.com/dramaplay/dramaplay/where"
	"github.com/spf13/viper"
)

const fileType = "toml"

// EnvKeyReplacer maps setting keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// File is the path of the config file, whether or not it exists.
func File() string {
	return filepath.Join(where.Config(), constant.Dramaplay+"."+fileType)
}

// Setup loads defaults, environment bindings and the config file, if any.
func Setup() error {
	viper.SetConfigName(constant.Dramaplay)
	viper.SetConfigType(fileType)
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(where.Config())

	viper.SetEnvPrefix(constant.Dramaplay)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read %s: %w", File(), err)
}
