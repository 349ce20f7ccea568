package env

import (
	"log"
	"strconv"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	HOME        string `zog:"HOME"`
	PORT        int    `zog:"POCO_PORT"`
	BASE_URL    string `zog:"POCO_BASE_URL"`
	LOG_LEVEL   string `zog:"POCO_LOG_LEVEL"`
	DATA_DIR    string `zog:"POCO_DATA_DIR"`
	LISTEN_ADDR string
}

var env *EnvStruct

var EnvSchema = z.Struct(z.Shape{
	"HOME":      z.String(),
	"PORT":      z.Int().Default(48231),
	"BASE_URL":  z.String().Optional().Trim(),
	"LOG_LEVEL": z.String().Default("info").Trim().OneOf([]string{"debug", "info", "warn", "error"}),
	"DATA_DIR":  z.String().Optional().Trim(),
})

// Get parses the process environment once. POCO_BASE_URL wins over the
// port-derived localhost address so the CLI can point at a remote backend.
func Get() *EnvStruct {
	if env == nil {
		env = &EnvStruct{}
		errs := EnvSchema.Parse(zenv.NewDataProvider(), env)
		if errs != nil {
			log.Fatal("[Poco] Failed to parse environment variables", errs)
		}

		env.LISTEN_ADDR = "localhost:" + strconv.Itoa(env.PORT)
		if env.BASE_URL == "" {
			env.BASE_URL = "http://" + env.LISTEN_ADDR
		}
		env.BASE_URL = strings.TrimRight(env.BASE_URL, "/")
	}
	return env
}

// Reset drops the cached environment. Tests use it after t.Setenv.
func Reset() {
	env = nil
}
