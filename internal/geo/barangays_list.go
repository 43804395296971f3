package geo

// Barangays is the Baguio City barangay catalogue in display order.
var Barangays = []string{
	"A. Bonifacio-Caguioa-Rimando (ABCR)",
	"Abanao-Zandueta-Kayong-Chugum-Otek (AZKCO)",
	"Alfonso Tabora",
	"Ambiong",
	"Andres Bonifacio (Lower Bokawkan)",
	"Apugan-Loakan",
	"Asin Road",
	"Atok Trail",
	"Aurora Hill Proper (Malvar-Sgt. Floresca)",
	"Aurora Hill, North Central",
	"Aurora Hill, South Central",
	"Bagong Lipunan (Market Area)",
	"Baguio Dairy Farm",
	"Bakakeng Central",
	"Bakakeng North",
	"Bal-Marcoville (Marcoville)",
	"Balsigan",
	"Bayan Park East",
	"Bayan Park Village",
	"Bayan Park West (Bayan Park)",
	"BGH Compound",
	"Brookside",
	"Brookspoint",
	"Cabinet Hill-Teacher's Camp",
	"Camdas Subdivision",
	"Camp 7",
	"Camp 8",
	"Camp Allen",
	"Campo Filipino",
	"City Camp Central",
	"City Camp Proper",
	"Country Club Village",
	"Cresencia Village",
	"Dagisitan",
	"Dagsian, Lower",
	"Dagsian, Upper",
	"Dizon Subdivision",
	"Dominican Hill-Mirador",
	"Dontogan",
	"DPS Area",
	"Engineers' Hill",
	"Fairview Village",
	"Ferdinand (Happy Homes-Campo Sioco)",
	"Fort del Pilar",
	"Gabriel Silang",
	"General Emilio F. Aguinaldo (Quirino-Magsaysay, Upper)",
	"General Luna, Lower",
	"General Luna, Upper",
	"Gibraltar",
	"Greenwater Village",
	"Guisad Central",
	"Guisad Sorong",
	"Happy Hollow",
	"Happy Homes (Happy Homes-Lucban)",
	"Harrison-Claudio Carantes",
	"Hillside",
	"Holy Ghost Extension",
	"Holy Ghost Proper",
	"Honeymoon (Honeymoon-Holy Ghost)",
	"Imelda R. Marcos (La Salle)",
	"Imelda Village",
	"Irisan",
	"Kabayanihan",
	"Kagitingan",
	"Kayang Extension",
	"Kayang-Hilltop",
	"Kias",
	"Legarda-Burnham-Kisad",
	"Liwanag-Loakan",
	"Loakan Proper",
	"Lopez Jaena",
	"Lourdes Subdivision Extension",
	"Lourdes Subdivision, Lower",
	"Lourdes Subdivision, Proper",
	"Lualhati",
	"Lucnab",
	"Magsaysay Private Road",
	"Magsaysay, Lower",
	"Magsaysay, Upper",
	"Malcolm Square-Perfecto (Jose Abad Santos)",
	"Manuel A. Roxas",
	"Market Subdivision, Upper",
	"Middle Quezon Hill Subdivision (Quezon Hill Middle)",
	"Military Cut-off",
	"Mines View Park",
	"Modern Site, East",
	"Modern Site, West",
	"MRR-Queen of Peace",
	"New Lucban",
	"Outlook Drive",
	"Pacdal",
	"Padre Burgos",
	"Padre Zamora",
	"Palma-Urbano (Cariño-Palma)",
	"Phil-Am",
	"Pinget",
	"Pinsao Pilot Project",
	"Pinsao Proper",
	"Poliwes",
	"Pucsusan",
	"Quezon Hill Proper",
	"Quezon Hill, Upper",
	"Quirino Hill, East",
	"Quirino Hill, Lower",
	"Quirino Hill, Middle",
	"Quirino Hill, West",
	"Quirino-Magsaysay, Lower (Quirino-Magsaysay, West)",
	"Rizal Monument Area",
	"Rock Quarry, Lower",
	"Rock Quarry, Middle",
	"Rock Quarry, Upper",
	"Salud Mitra",
	"San Antonio Village",
	"San Luis Village",
	"San Roque Village",
	"San Vicente",
	"Sanitary Camp, North",
	"Sanitary Camp, South",
	"Santa Escolastica",
	"Santo Rosario",
	"Santo Tomas Proper",
	"Santo Tomas School Area",
	"Scout Barrio",
	"Session Road Area",
	"Slaughter House Area (Santo Niño Slaughter)",
	"SLU-SVP Housing Village",
	"South Drive",
	"Teodora Alonzo",
	"Trancoville",
	"Upper General Luna",
	"Victoria Village",
	"Websters Subdivision",
}
