package testutil

import "strings"

// PiDigits holds pi to 2000 decimal places.
const PiDigits = "3." +
	"14159265358979323846264338327950288419716939937510582097494459230781640628620899" +
	"86280348253421170679821480865132823066470938446095505822317253594081284811174502" +
	"84102701938521105559644622948954930381964428810975665933446128475648233786783165" +
	"27120190914564856692346034861045432664821339360726024914127372458700660631558817" +
	"48815209209628292540917153643678925903600113305305488204665213841469519415116094" +
	"33057270365759591953092186117381932611793105118548074462379962749567351885752724" +
	"89122793818301194912983367336244065664308602139494639522473719070217986094370277" +
	"05392171762931767523846748184676694051320005681271452635608277857713427577896091" +
	"73637178721468440901224953430146549585371050792279689258923542019956112129021960" +
	"86403441815981362977477130996051870721134999999837297804995105973173281609631859" +
	"50244594553469083026425223082533446850352619311881710100031378387528865875332083" +
	"81420617177669147303598253490428755468731159562863882353787593751957781857780532" +
	"17122680661300192787661119590921642019893809525720106548586327886593615338182796" +
	"82303019520353018529689957736225994138912497217752834791315155748572424541506959" +
	"50829533116861727855889075098381754637464939319255060400927701671139009848824012" +
	"85836160356370766010471018194295559619894676783744944825537977472684710404753464" +
	"62080466842590694912933136770289891521047521620569660240580381501935112533824300" +
	"35587640247496473263914199272604269922796782354781636009341721641219924586315030" +
	"28618297455570674983850549458858692699569092721079750930295532116534498720275596" +
	"02364806654991198818347977535663698074265425278625518184175746728909777727938000" +
	"81647060016145249192173217214772350141441973568548161361157352552133475741849468" +
	"43852332390739414333454776241686251898356948556209921922218427255025425688767179" +
	"04946016534668049886272327917860857843838279679766814541009538837863609506800642" +
	"25125205117392984896084128488626945604241965285022210661186306744278622039194945" +
	"04712371378696095636437191728746776465757396241389086583264599581339047802759009"

// HasPiPrefix reports whether s agrees with PiDigits on all but its last
// unreliable characters. It also fails when s is longer than PiDigits.
func HasPiPrefix(s string, unreliable int) bool {
	if len(s) > len(PiDigits) {
		return false
	}
	if len(s) <= unreliable {
		return strings.HasPrefix(PiDigits, s)
	}
	return strings.HasPrefix(PiDigits, s[:len(s)-unreliable])
}
