package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/herwingx/secret-santa/internal/model"
	"github.com/herwingx/secret-santa/internal/shuffle"
)

// DefaultNames is the built-in roster, alphabetical. The seating shuffle maps
// these onto seat numbers; keeping the source list sorted means the seed is
// the only thing deciding who gets which number.
var DefaultNames = []string{
	"ALCALA CARDONA JOSE ALFREDO",
	"ARRIAGA RAMIREZ BEATRIZ",
	"AVENDAÑO AQUINO SERGIO OMAR",
	"BELTRAN NATURI ISRAEL",
	"CAMAS ROBLES ALEXIS",
	"CHANDOMI QUINTERO MAURICIO ALEJANDRO",
	"COLMENARES LOPEZ JUAN DE JESUS",
	"CUEVAS PEREZ ROBERTO",
	"DE LA CRUZ VELAZQUEZ MARIA DEL CARMEN",
	"DEL ANGEL ZAMORA SERGIO",
	"DOMINGUEZ ESPINOSA GABRIEL LEONARDO",
	"ESPINOSA GOMEZ DULCE FATIMA",
	"GOMEZ ALFARO DANIELA",
	"GONZALEZ LOPEZ ADALBERTO",
	"GUTIERREZ HERNANDEZ ALEJANDRO",
	"HERNANDEZ LIEVANO IRIS MARLIT",
	"MACAL INFANZON CRISTIAN ROMEO",
	"MACIAS VELAZQUEZ GUADALUPE",
	"MARTINEZ JIMENEZ AMIR",
	"MORALES LOPEZ IVAN DE JESUS",
	"MUÑOZ LEPE YADIRA",
	"OCHOA MARROQUIN CECIL",
	"OZUNA CABALLERO MARTHA LIDIA",
	"RINCON SANCHEZ MARIANO GUSTAVO",
	"RODRIGUEZ JIMENEZ CARLOS ALBERTO",
	"ROQUE ESPINOSA LILIANA ELIZABETH",
	"RUIZ LOPEZ RAFAEL OCTAVIO",
	"RUIZ LOPEZ SERGIO DE JESUS",
	"RUIZ REYES RAFAEL ABRAHAM",
	"TELLO SANTIAGO DANIEL ALEJANDRO",
	"TOLEDO DE LEON CITLALLI GUADALUPE",
	"URBINA PEREZ ANDREA MERARI",
	"VAZQUEZ JUAREZ JULIO CESAR",
	"VAZQUEZ MACIAS HERWING EDUARDO",
}

// Bootstrap creates the roster file if it does not exist: shuffle names with
// the seed, assign seat numbers "1"..N in shuffled order, write the file.
// An existing file wins: once bootstrapped, the file is the source of truth
// and the seed is never consulted again (otherwise a seed change would
// silently renumber a raffle already in progress).
func Bootstrap(path string, names []string, seed int64) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("jsonfile: checking roster %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("jsonfile: creating roster directory: %w", err)
	}

	shuffled := shuffle.Strings(names, seed)
	participants := make([]model.Participant, len(shuffled))
	for i, name := range shuffled {
		participants[i] = model.Participant{
			ID:   strconv.Itoa(i + 1), // the seat number the wheel displays
			Name: name,
		}
	}

	data, err := json.MarshalIndent(participants, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding bootstrap roster: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("jsonfile: writing bootstrap roster: %w", err)
	}
	return nil
}
