package agent

import "github.com/jhoicas/TelarIA-api/internal/domain/entity"

// Identity es la identidad autenticada del turno. La capa HTTP la resuelve
// del JWT y fluye explícita por el orquestador hasta cada herramienta:
// nunca estado global, nunca argumentos de herramienta.
//
// BillToPartyCode hace doble papel: clave de scoping en facturación y nombre
// visible en el prompt para clientes. Esa fusión viene de los datos de origen
// y vive solo aquí; separarla después toca un solo tipo.
type Identity struct {
	UserID          string
	DisplayName     string
	BillToPartyCode string
	Role            string
}

// IsAdmin indica si la identidad tiene rol administrador.
func (id Identity) IsAdmin() bool {
	return id.Role == entity.RoleAdmin
}
