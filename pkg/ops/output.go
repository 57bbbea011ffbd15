package ops

import (
	"github.com/pkg/errors"
	"lab47.dev/hfsci/pkg/config"
	"lab47.dev/hfsci/pkg/ghoutput"
)

func publish(out *ghoutput.Output, key, value string) error {
	return outputErr(out.Set(key, value))
}

func publishBool(out *ghoutput.Output, key string, v bool) error {
	return outputErr(out.SetBool(key, v))
}

func outputErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ghoutput.ErrNoOutput) {
		return configErr("output", "%s is not set", config.EnvOutput)
	}

	return track(err)
}
