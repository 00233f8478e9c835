package afip

// Environment groups the endpoints of one AFIP deployment.
type Environment struct {
	Name    string
	WSAAURL string
	WSFEURL string
}

var (
	// Homologation is the AFIP test deployment.
	Homologation = Environment{
		Name:    "homologation",
		WSAAURL: "https://wsaahomo.afip.gov.ar/ws/services/LoginCms",
		WSFEURL: "https://wswhomo.afip.gov.ar/wsfev1/service.asmx",
	}

	// Production is the live AFIP deployment.
	Production = Environment{
		Name:    "production",
		WSAAURL: "https://wsaa.afip.gov.ar/ws/services/LoginCms",
		WSFEURL: "https://servicios1.afip.gov.ar/wsfev1/service.asmx",
	}
)

// EnvironmentFor returns Production when production is set, Homologation otherwise.
func EnvironmentFor(production bool) Environment {
	if production {
		return Production
	}
	return Homologation
}
