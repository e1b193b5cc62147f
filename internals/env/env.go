package env

import (
	"log"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
)

type EnvStruct struct {
	OPENAI_API_KEY string `zog:"OPENAI_API_KEY"`
	OPEN_API_KEY   string `zog:"OPEN_API_KEY"`
	BASE_URL       string `zog:"SCOUT_OPENAI_BASE_URL"`
	API_KEY        string
}

var env *EnvStruct

var EnvSchema = z.Struct(z.Shape{
	"OPENAI_API_KEY": z.String().Optional(),
	"OPEN_API_KEY":   z.String().Optional(),
	"BASE_URL":       z.String().Default("https://api.openai.com/v1"),
})

func Get() *EnvStruct {
	if env == nil {
		env = &EnvStruct{}
		errs := EnvSchema.Parse(zenv.NewDataProvider(), env)
		if errs != nil {
			log.Fatal("[Scout] Failed to parse environment variables ", errs)
		}

		// OPEN_API_KEY is a legacy alias kept for old .env files.
		env.API_KEY = env.OPENAI_API_KEY
		if env.API_KEY == "" {
			env.API_KEY = env.OPEN_API_KEY
		}
	}
	return env
}
