package flow_helpers

import (
	"bytes"
	"text/template"

	"github.com/caarlos0/env/v6"
)

// CadenceTemplateVars are the contract addresses substituted into the
// transaction and script templates. Defaults point at the emulator.
type CadenceTemplateVars struct {
	Drop             string `env:"MINT_FLOW_DROP_ADDRESS"`
	FungibleToken    string `env:"FUNGIBLE_TOKEN_ADDRESS" envDefault:"0xee82856bf20e2aa6"`
	FlowToken        string `env:"FLOW_TOKEN_ADDRESS" envDefault:"0x0ae53cb6e3f42a79"`
	NonFungibleToken string `env:"NON_FUNGIBLE_TOKEN_ADDRESS" envDefault:"0xf8d6e0586b0a20c7"`
}

func ParseCadenceTemplate(name string, source []byte, vars *CadenceTemplateVars) ([]byte, error) {
	if vars == nil {
		vars = &CadenceTemplateVars{}
	}

	if err := env.Parse(vars); err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(source))
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}

	if err := tmpl.Execute(buf, *vars); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
