/*
Package smactl is the SMA lab workbench toolkit.

It provisions the project's conda environment (creation from
environment.yml, activation verification, Jupyter kernel registration)
and retrieves the SST dataset the environment is meant to analyze from
the Destination Earth Harmonised Data Access service.

The package is a thin façade over the internal building blocks; the
smactl binary under cmd/smactl and the MCP adapter both drive it.

	cfg, _ := config.Load(config.DefaultPath)
	wb := smactl.New(cfg)

	report, err := wb.Provision(ctx, setup.Hooks{})
	if err != nil {
		// conda missing, creation failed, or activation failed
	}
*/
package smactl
